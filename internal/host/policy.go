// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package host

import (
	"fmt"
	"strings"
)

// ParamPolicy selects how the host treats parameter strings that a
// module's declared parameters do not fully accept.
type ParamPolicy string

// Parameter policies.
const (
	// ParamsLenient passes the string through and logs each issue. Modules
	// fall back to defaults for anything they cannot use.
	ParamsLenient ParamPolicy = "lenient"
	// ParamsStrict fails Init before the module sees the string.
	ParamsStrict ParamPolicy = "strict"
)

// ParseParamPolicy parses a policy name. The empty string is lenient.
func ParseParamPolicy(s string) (ParamPolicy, error) {
	switch ParamPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", ParamsLenient:
		return ParamsLenient, nil
	case ParamsStrict:
		return ParamsStrict, nil
	default:
		return "", fmt.Errorf("unknown param policy %q", s)
	}
}
