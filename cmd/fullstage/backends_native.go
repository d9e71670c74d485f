//go:build !js

package main

import (
	_ "github.com/san-kum/fullstage/internal/backend/raylib"
	_ "github.com/san-kum/fullstage/internal/backend/terminal"
)
