package web

import "html/template"

// Page templates for the admin front end. Kept deliberately plain: the
// audience is a single administrator following an emailed link.

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
{{if .Heading}}<h1 style="color: {{.HeadingColor}};">{{.Heading}}</h1>{{end}}
{{range .Paragraphs}}<p>{{.}}</p>
{{end}}
{{if .LastUpdated}}<p><i>Last updated: {{.LastUpdated}}</i></p>{{end}}
{{if .ShowEmailForm}}
<form method="post" action="{{.BaseURL}}/resendpasscode">
<label for="adminemail">Registered admin email address:</label><br>
<input type="email" id="adminemail" name="adminemail" required style="width: 100%; padding: 8px; margin: 8px 0;">
<button type="submit" style="padding: 8px 16px;">Send reset link</button>
</form>
{{end}}
</body>
</html>`))

var enterTokensTemplate = template.Must(template.New("entertokens").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
{{if .ErrorMessage}}<h1 style="color: #dc3545;">{{.ErrorMessage}}</h1>{{end}}
{{if .PreciseError}}<p>Precise error: <code>{{.PreciseError}}</code></p>{{end}}
{{if .Body}}<p>{{.Body}}</p>{{end}}
<form method="post" action="{{.BaseURL}}/updatetokens/{{.Passcode}}">
<label for="apikey">API key (apikey):</label><br>
<input type="text" id="apikey" name="apikey" required style="width: 100%; padding: 8px; margin: 8px 0;"><br>
<label for="insttoken">Institutional token (insttoken):</label><br>
<input type="text" id="insttoken" name="insttoken" style="width: 100%; padding: 8px; margin: 8px 0;"><br>
<label for="expirydate">Expiry date (YYYY-MM-DD):</label><br>
<input type="date" id="expirydate" name="expirydate" required style="width: 100%; padding: 8px; margin: 8px 0;"><br>
<button type="submit" style="padding: 8px 16px;">Verify and save tokens</button>
</form>
</body>
</html>`))

var passcodeSentTemplate = template.Must(template.New("passcodesent").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
<h1>Link sent</h1>
<p>If the address you entered matches the registered admin email, a reset link is on its way.
The link must be used within {{.ExpiryHours}} hours of being sent.</p>
<p><a href="{{.BaseURL}}">Back to status page</a></p>
</body>
</html>`))

// indexData drives the status/invalid/expired variants of the front page.
type indexData struct {
	Title         string
	Heading       string
	HeadingColor  string
	Paragraphs    []string
	LastUpdated   string
	ShowEmailForm bool
	BaseURL       string
}

type enterTokensData struct {
	Title        string
	ErrorMessage string
	PreciseError string
	Body         string
	BaseURL      string
	Passcode     string
}

type passcodeSentData struct {
	Title       string
	ExpiryHours int
	BaseURL     string
}
