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
package vkdriver

import (
	"encoding/json"
	"strings"

	vk "github.com/vulkan-go/vulkan"
	"goarrg.com/debug"
)

// safeString returns s terminated by a single NUL as the loader expects.
func safeString(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = safeString(s)
	}
	return out
}

// check converts a failed vk.Result into an error describing what was being
// done, successful results become nil.
func check(res vk.Result, f string, args ...any) error {
	if err := vk.Error(res); err != nil {
		return debug.ErrorWrapf(err, f, args...)
	}
	return nil
}

func clamp[T ~uint32 | ~int32](v, low, high T) T {
	return max(low, min(v, high))
}

func prettyString(target json.Marshaler) string {
	bytes, err := json.MarshalIndent(target, "", "    ")
	if err != nil {
		return err.Error()
	}
	return strings.TrimSpace(string(bytes))
}
