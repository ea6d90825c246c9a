package domain

// SSLCommerzSession is the processor's reply to a session-initiation request.
// Only the fields this backend reads are mapped.
type SSLCommerzSession struct {
	Status         string `json:"status"`
	FailedReason   string `json:"failedreason"`
	SessionKey     string `json:"sessionkey"`
	GatewayPageURL string `json:"GatewayPageURL"`
	StoreBanner    string `json:"storeBanner"`
	StoreLogo      string `json:"storeLogo"`
}
