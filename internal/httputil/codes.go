package httputil

// Machine-readable error codes returned alongside error messages so clients
// can branch without parsing human-facing text.
const (
	CodeInvalidRequestBody = "invalid_request_body"
	CodeValidationFailed   = "validation_failed"
	CodeInternalError      = "internal_error"
	CodeTooManyRequests    = "too_many_requests"
	CodeCooldownActive     = "cooldown_active"
	CodeNotFound           = "not_found"
	CodeForbidden          = "forbidden"
	CodeConflict           = "conflict"

	CodeEmailRequired      = "email_required"
	CodePasswordRequired   = "password_required"
	CodePasswordTooShort   = "password_too_short"
	CodeInvalidEmailFormat = "invalid_email_format"
	CodeEmailAlreadyExists = "email_already_exists"
	CodeInvalidCredentials = "invalid_credentials"

	CodeMissingAuth          = "missing_auth"
	CodeInvalidAuthHeader    = "invalid_auth_header"
	CodeInvalidToken         = "invalid_token"
	CodeTokenExpired         = "token_expired"
	CodeInvalidTokenUserID   = "invalid_token_user_id"
	CodeRefreshTokenRequired = "refresh_token_required"
	CodeInvalidRefreshToken  = "invalid_refresh_token"
	CodeInvalidResetToken    = "invalid_reset_token"

	CodeAlreadyInGroup = "already_in_group"
	CodeGroupNotFound  = "group_not_found"
	CodeNotGroupMember = "not_group_member"
	CodeCodeGenFailure = "code_generation_failed"
	CodeAlreadyFriends = "friendship_exists"
	CodeNotFriends     = "not_friends"
	CodeCannotAddSelf  = "cannot_add_self"
)
