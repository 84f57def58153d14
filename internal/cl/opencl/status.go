package opencl

import "github.com/AndreyAkinshin/conform/internal/cl"

// Status codes that mean an ID query found nothing.
const (
	deviceNotFound      = -1    // CL_DEVICE_NOT_FOUND
	platformNotFoundKHR = -1001 // CL_PLATFORM_NOT_FOUND_KHR, from ICD loaders with no vendor installed
)

// idCount interprets the status and count returned by the sizing call of
// clGetPlatformIDs or clGetDeviceIDs. notFound is the one status that means
// an empty list; every other failure is an error, whatever n holds.
func idCount(op string, code, notFound int, n uint32) (int, error) {
	switch code {
	case 0:
		return int(n), nil
	case notFound:
		return 0, nil
	default:
		return 0, &cl.Error{Op: op, Code: code}
	}
}
