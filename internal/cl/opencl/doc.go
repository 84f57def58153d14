// Package opencl binds the system OpenCL ICD loader. Builds with the opencl
// tag register it as the "opencl" backend; other builds register nothing.
package opencl
