// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package host

import (
	"github.com/samber/oops"

	"github.com/vidplug/vidplug/pkg/frameplugin"
)

// VerifyDescriptor checks a descriptor before any other field is trusted.
// The API version is checked first; a mismatch rejects the module outright.
func VerifyDescriptor(d *frameplugin.Descriptor) error {
	if d == nil {
		return oops.Code(CodeInvalidDescriptor).Wrapf(ErrInvalidDescriptor, "descriptor is nil")
	}
	if d.APIVersion != frameplugin.APIVersion {
		return oops.Code(CodeAPIVersionMismatch).
			With("want", frameplugin.APIVersion).
			With("got", d.APIVersion).
			Wrapf(ErrAPIVersion, "module built for api version %d", d.APIVersion)
	}
	errb := oops.Code(CodeInvalidDescriptor).With("name", d.Name)
	if d.Name == "" {
		return errb.Wrapf(ErrInvalidDescriptor, "descriptor has no name")
	}
	if d.Create == nil || d.Destroy == nil {
		return errb.Wrapf(ErrInvalidDescriptor, "descriptor must provide create and destroy")
	}
	return nil
}
