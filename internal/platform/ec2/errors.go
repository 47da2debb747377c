package ec2

import (
	"errors"
	"strings"

	"github.com/aws/smithy-go"
)

// Provider error codes sparkfleet reacts to.
const (
	CodeDuplicatePermission = "InvalidPermission.Duplicate"
	CodeDuplicateGroup      = "InvalidGroup.Duplicate"
	CodeDependencyViolation = "DependencyViolation"
	CodeGroupNotFound       = "InvalidGroup.NotFound"
	CodeAMINotFound         = "InvalidAMIID.NotFound"
	CodeAMIMalformed        = "InvalidAMIID.Malformed"
	CodeInstanceNotFound    = "InvalidInstanceID.NotFound"
)

// ErrorCode returns the provider error code carried by err, or "".
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// isErrorCode checks if err is a provider error with one of the given codes.
func isErrorCode(err error, codes ...string) bool {
	if err == nil {
		return false
	}
	code := ErrorCode(err)
	for _, c := range codes {
		if code == c {
			return true
		}
	}
	return false
}

// IsDuplicatePermission reports an ingress rule that already exists.
func IsDuplicatePermission(err error) bool {
	return isErrorCode(err, CodeDuplicatePermission)
}

// IsDuplicateGroup reports a security group name already taken in the VPC.
func IsDuplicateGroup(err error) bool {
	return isErrorCode(err, CodeDuplicateGroup)
}

// IsDependencyViolation reports a resource still referenced by another one.
// Deleting a security group that instances still use returns this for a
// few minutes after they terminate.
func IsDependencyViolation(err error) bool {
	return isErrorCode(err, CodeDependencyViolation)
}

// IsImageNotFound reports an unknown or malformed AMI id.
func IsImageNotFound(err error) bool {
	return isErrorCode(err, CodeAMINotFound, CodeAMIMalformed)
}

// IsNotFound reports any *.NotFound provider code.
func IsNotFound(err error) bool {
	return strings.HasSuffix(ErrorCode(err), ".NotFound")
}
