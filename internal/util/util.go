/*
Copyright 2025 The goARRG Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package util

import (
	"unsafe"

	"goarrg.com"
	"goarrg.com/debug"
)

type platform struct{}

func (platform) Abort()                           { panic("Fatal Error") }
func (platform) AbortPopup(f string, args ...any) { panic("Fatal Error") }

var instance = struct {
	platform goarrg.PlatformInterface
	logger   *debug.Logger
}{
	platform: platform{},
	logger:   debug.NewLogger("mve", "internal", "util"),
}

func abort(fmt string, args ...any) {
	instance.logger.EPrintf(fmt, args...)
	instance.platform.Abort()
}

func Init(platform goarrg.PlatformInterface) {
	instance.platform = platform
}

// Bytes returns a copy of the in-memory representation of data.
func Bytes[T comparable](data T) []byte {
	return append([]byte(nil), unsafe.Slice((*byte)(unsafe.Pointer(&data)), unsafe.Sizeof(data))...)
}

// SliceBytes returns a copy of the in-memory representation of data.
func SliceBytes[T comparable](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	return append([]byte(nil), unsafe.Slice(
		(*byte)(unsafe.Pointer(unsafe.SliceData(data))), uintptr(len(data))*unsafe.Sizeof(data[0]),
	)...)
}

// Uint32s reinterprets SPIR-V bytecode as words, the length must be a multiple of 4.
func Uint32s(code []byte) []uint32 {
	if len(code)%4 != 0 {
		abort("Code size %d is not a multiple of 4", len(code))
	}
	words := make([]uint32, len(code)/4)
	copy(unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(words))), len(code)), code)
	return words
}
