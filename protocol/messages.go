package protocol

// AuthResponse 认证成功应答
type AuthResponse struct {
	Subject    string              `json:"subject"`
	EntryDN    string              `json:"entry_dn,omitempty"`
	Attributes map[string][]string `json:"attributes"`
}

// WarningResponse 证书临期警告页应答
type WarningResponse struct {
	DaysLeft int    `json:"days_left"`
	RenewURL string `json:"renew_url,omitempty"`
	Token    string `json:"token"`
}

// ResumeResponse 恢复认证应答
type ResumeResponse struct {
	Resumed bool                   `json:"resumed"`
	State   map[string]interface{} `json:"state,omitempty"`
}
