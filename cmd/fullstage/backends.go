package main

import (
	_ "github.com/san-kum/fullstage/internal/backend/ebitengine"
)
