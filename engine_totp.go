package guardian

import "time"

// GenerateTOTPSecret creates a fresh random TOTP secret and its base32
// encoding (no padding) for enrollment.
func (e *Engine) GenerateTOTPSecret() ([]byte, string, error) {
	return e.totp.GenerateSecret()
}

// GenerateTOTP derives the code for the time step containing at. Intended
// for server-side verification flows and enrollment previews.
func (e *Engine) GenerateTOTP(secret []byte, at time.Time) (string, error) {
	return e.totp.CodeAt(secret, at)
}

// VerifyTOTP checks a submitted code against the configured skew window.
func (e *Engine) VerifyTOTP(secret []byte, code string) bool {
	ok, _ := e.totp.VerifyCode(secret, code, e.now())
	if ok {
		e.metrics.Inc(MetricTOTPSuccess)
	} else {
		e.metrics.Inc(MetricTOTPFailure)
	}
	return ok
}

// ProvisionURI builds the otpauth:// enrollment URI for the account.
func (e *Engine) ProvisionURI(secretBase32, account string) string {
	return e.totp.ProvisionURI(secretBase32, account)
}

// GenerateBackupCodes produces a fresh set of single-use recovery codes.
func (e *Engine) GenerateBackupCodes() ([]string, error) {
	codes, err := e.totp.GenerateBackupCodes()
	if err != nil {
		return nil, err
	}
	e.metrics.Inc(MetricBackupCodesGenerated)
	return codes, nil
}
