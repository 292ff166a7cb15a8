package server

import (
	_ "embed"
	"html/template"
)

//go:embed templates/callback.html
var callbackPageTemplateHTML string

//go:embed templates/flow_error.html
var errorPageTemplateHTML string

//go:embed templates/device.html
var devicePageTemplateHTML string

var callbackPageTemplate = template.Must(template.New("callback").Parse(callbackPageTemplateHTML))
var errorPageTemplate = template.Must(template.New("flow_error").Parse(errorPageTemplateHTML))
var devicePageTemplate = template.Must(template.New("device").Parse(devicePageTemplateHTML))

// CallbackPageData renders the post-exchange success page. The meta refresh
// carries the redirect so navigation happens without script, after the
// configured delay.
type CallbackPageData struct {
	Provider     string
	RedirectTo   string
	DelaySeconds string
}

// ErrorPageData renders a failed flow
type ErrorPageData struct {
	Title     string
	Message   string
	Retryable bool
	RetryURL  string
}

// DevicePageData renders the CLI pairing confirmation page
type DevicePageData struct {
	UserCode   string
	ConfirmURL string
}
