package graph

import "time"

// ControlProfile is a secureScoreControlProfile resource.
type ControlProfile struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	ControlCategory    string   `json:"controlCategory"`
	MaxScore           *float64 `json:"maxScore"`
	ImplementationCost string   `json:"implementationCost"`
	UserImpact         string   `json:"userImpact"`
	Threats            []string `json:"threats"`
	Remediation        string   `json:"remediation"`
	RemediationImpact  string   `json:"remediationImpact"`
	ActionURL          string   `json:"actionUrl"`
	Service            string   `json:"service"`
	Tier               string   `json:"tier"`
	Deprecated         bool     `json:"deprecated"`
	Rank               int      `json:"rank"`
}

// ControlProfilesResponse is one page of control profiles.
type ControlProfilesResponse struct {
	Value    []ControlProfile `json:"value"`
	NextLink string           `json:"@odata.nextLink"`
}

// ControlScore is one entry of secureScore.controlScores.
type ControlScore struct {
	ControlName     string   `json:"controlName"`
	ControlCategory string   `json:"controlCategory"`
	Score           *float64 `json:"score"`
	Description     string   `json:"description"`
}

// SecureScore is a secureScore resource.
type SecureScore struct {
	ID                string         `json:"id"`
	AzureTenantID     string         `json:"azureTenantId"`
	CreatedDateTime   time.Time      `json:"createdDateTime"`
	CurrentScore      float64        `json:"currentScore"`
	MaxScore          float64        `json:"maxScore"`
	ActiveUserCount   int            `json:"activeUserCount"`
	LicensedUserCount int            `json:"licensedUserCount"`
	EnabledServices   []string       `json:"enabledServices"`
	ControlScores     []ControlScore `json:"controlScores"`
}

// SecureScoresResponse is a page of secure scores.
type SecureScoresResponse struct {
	Value []SecureScore `json:"value"`
}

// Organization is the tenant's organization resource (minimal fields).
type Organization struct {
	ID              string           `json:"id"`
	DisplayName     string           `json:"displayName"`
	VerifiedDomains []VerifiedDomain `json:"verifiedDomains"`
}

// VerifiedDomain is a domain registered to the tenant.
type VerifiedDomain struct {
	Name      string `json:"name"`
	IsDefault bool   `json:"isDefault"`
}

// OrganizationResponse wraps the organization collection.
type OrganizationResponse struct {
	Value []Organization `json:"value"`
}

// User is the signed-in user (minimal fields).
type User struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	UserPrincipalName string `json:"userPrincipalName"`
}
