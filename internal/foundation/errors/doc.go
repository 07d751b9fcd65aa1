// Package errors provides the classified error primitives used by the catalog CLI.
//
// A ClassifiedError carries a category (config, discovery, render, external tool...)
// and a severity. The CLIErrorAdapter maps categories to process exit codes.
//
//	err := errors.WrapError(cause, errors.CategoryExternalTool, "data contract export failed").
//		WithContext("file", path).
//		Fatal().
//		Build()
package errors
