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
package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"goarrg.com/gmath"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, "mve", cfg.Title)
	assert.Equal(t, gmath.Extent3i32{X: 1280, Y: 720, Z: 1}, cfg.Size)

	cfg = Config{Title: "demo", Size: gmath.Extent3i32{X: 800, Y: 0, Z: 1}, Resizable: true}.withDefaults()
	assert.Equal(t, "demo", cfg.Title)
	assert.Equal(t, gmath.Extent3i32{X: 1280, Y: 720, Z: 1}, cfg.Size)
	assert.True(t, cfg.Resizable)

	cfg = Config{Size: gmath.Extent3i32{X: 800, Y: 600, Z: 1}}.withDefaults()
	assert.Equal(t, gmath.Extent3i32{X: 800, Y: 600, Z: 1}, cfg.Size)
}
