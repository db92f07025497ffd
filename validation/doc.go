// Package validation checks request bodies, path parameters and configuration.
//
// Struct tag validation (go-playground/validator) is used for request bodies
// and configuration structs; the programmatic Validator collects errors for
// path parameters. Both report a VALIDATION_FAILED AppError whose details
// list the failing fields.
//
//	if err := validation.Validate(req); err != nil {
//	    return err
//	}
//
//	err := validation.New().
//	    Required("organizationId", orgID).
//	    MaxLength("organizationId", orgID, 64).
//	    Validate()
package validation
