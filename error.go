package ns

import (
	"os"
	"syscall"

	"github.com/pkg/errors"
)

var ErrInvalidRange = errors.New("Advertising interval outside the range the controller accepts.")
var ErrEndpointUnavailable = errors.New("Advertising interval endpoint missing. Make sure debugfs is mounted and the adapter exists.")
var ErrWritePermissionDenied = errors.New("Permission denied writing advertising interval endpoint. The ns daemon must run as root.")
var ErrWriteRejected = errors.New("The controller driver rejected the advertising interval value.")
var ErrConnectingToDaemon = errors.New("Could not connect to the ns daemon. Make sure it is running by typing \"ns restart\".")

// classifyEndpointError maps a raw endpoint failure onto one of the sentinel
// errors above, keeping the underlying cause in the message so callers can
// still match with errors.Cause.
func classifyEndpointError(path string, err error) error {
	kind := ErrWriteRejected
	switch {
	case os.IsNotExist(err) || isErrno(err, syscall.ENOTDIR):
		kind = ErrEndpointUnavailable
	case os.IsPermission(err):
		kind = ErrWritePermissionDenied
	}
	return errors.Wrapf(kind, "%s: %v", path, err)
}

func isErrno(err error, errno syscall.Errno) bool {
	if pathErr, ok := err.(*os.PathError); ok {
		err = pathErr.Err
	}
	return err == errno
}
