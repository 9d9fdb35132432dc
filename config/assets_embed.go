package simple

import (
	_ "embed"
)

//go:embed assets/profile.yaml
var embeddedProfile []byte
