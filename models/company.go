package models

// DefaultCompanyName is used when no company name is configured.
const DefaultCompanyName = "Practice Portal"

// CompanyProfile identifies the issuer printed on invoices.
// Empty fields fall back to their defaults via WithDefaults: the name to
// DefaultCompanyName, the address, email and phone to blank.
type CompanyProfile struct {
	CompanyName string `json:"company_name"`
	Address     string `json:"address"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

func (c CompanyProfile) WithDefaults() CompanyProfile {
	if c.CompanyName == "" {
		c.CompanyName = DefaultCompanyName
	}
	return c
}
