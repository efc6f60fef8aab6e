package utils

const (
	OrganizationName                      = "Smart Waste"
	CORSLowSecurityAllowedOriginLocalhost = "http://localhost:*"
	DefaultStickerFooter                  = "Smart Waste Management System"
	TestEmailSuffix                       = "testing@smartwaste.dev"
	TestPhoneNumberBase                   = "+9477"
)
