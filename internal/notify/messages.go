package notify

import (
	"fmt"
	"html"
)

// Subjects for the three notifications the system sends.
const (
	SubjectReminder = "URGENT: Elsevier Scopus authentication tokens for X-Risk/TERRA due to expire soon"
	SubjectFailure  = "Problem downloading Elsevier Scopus"
	SubjectReset    = "Reset Elsevier Scopus authentication tokens"
)

const signoff = "Regards,\n\nX-Risk/TERRA Sysadmin System\n"

// ReminderMessage composes the advisory email sent when the stored tokens
// are due to expire within the reminder window. The reset URL embeds a
// freshly issued passcode.
func ReminderMessage(expiryDate, resetURL string) Message {
	text := fmt.Sprintf(`Dear CSER Admin,

The Elsevier API authentication tokens for the X-Risk/TERRA system are due to expire on %s.

Please follow the instructions in the attached "Instructions.pdf" file to obtain and implement new authentication tokens.

Once you have obtained valid authentication tokens from Elsevier, click the following link to enter them into the X-Risk/TERRA system:
%s

%s`, expiryDate, resetURL, signoff)

	htmlBody := fmt.Sprintf(`<html>
<head></head>
<body>
<p>Dear CSER Admin,<br><br>
The Elsevier API authentication tokens for the X-Risk/TERRA system are due to expire on %s.
<br><br>
Please follow the instructions in the attached "Instructions.pdf" file to obtain and implement new authentication tokens.
<br><br>
Once you have obtained valid authentication tokens from Elsevier, click the following link to enter them into the X-Risk/TERRA system:<br>
<a href="%s">%s</a>
<br><br>
Regards,<br><br>
X-Risk/TERRA Sysadmin System
</p>
</body>
</html>`, html.EscapeString(expiryDate), resetURL, resetURL)

	return Message{Subject: SubjectReminder, Text: text, HTML: htmlBody}
}

// FailureMessage composes the alert email sent when a live check with the
// stored tokens fails. It carries the vendor error text verbatim and a
// curl command reproducing the failing request so the admin can
// self-diagnose without log access.
func FailureMessage(errorText, curlCommand, resetURL string) Message {
	text := fmt.Sprintf(`Dear CSER Admin,

There was a problem downloading the Elsevier Scopus data file for XRisk.

The exact error is:

%s

You will need to:
(i) Contact Elsevier to obtain correct apikey and insttoken authentication token(s)
(ii) Click following link to enter new apikey and insttoken authentication tokens into X-Risk/TERRA system:
%s

For further details about how to obtain correct authentication tokens from Elsevier, see the attached "Instructions.pdf" file.

To reproduce this error on a local computer, open command prompt and enter:

%s

If the above curl request is operating correctly, you should see lots of data including the 'dc:description' field. If 'dc:description' field is missing, that will create problems for xrisk.

%s`, errorText, resetURL, curlCommand, signoff)

	htmlBody := fmt.Sprintf(`<html>
<head></head>
<body>
<p>Dear CSER Admin,<br><br>
There was a problem downloading the Elsevier Scopus data file for XRisk.<br><br>
The exact error is:<br><br>
<code>%s</code>
<br><br>
You will need to:<br>
(i) Contact Elsevier to obtain correct <code>apikey</code> and <code>insttoken</code> authentication token(s)<br>
(ii) Click following link to enter new apikey and insttoken authentication tokens into X-Risk/TERRA system:<br>
<a href="%s">%s</a><br>
<br>
For further details about how to obtain and implement correct authentication tokens from Elsevier, see the attached "Instructions.pdf" file.
<br><br>
To reproduce this error on a local computer, open command prompt and enter:<br><br>
<code>%s</code><br><br>
If the above curl request is operating correctly, you should see lots of data including the 'dc:description' field. If 'dc:description' field is missing, that will create problems for xrisk.<br><br>
Regards,<br><br>
X-Risk/TERRA Sysadmin System<br>
</p>
</body>
</html>`, html.EscapeString(errorText), resetURL, resetURL, html.EscapeString(curlCommand))

	return Message{Subject: SubjectFailure, Text: text, HTML: htmlBody}
}

// ResetMessage composes the email sent when the admin requests a fresh
// token-reset link from the front end.
func ResetMessage(resetURL string) Message {
	text := fmt.Sprintf(`Dear CSER Admin,

To reset Elsevier Scopus authentication tokens, click this link:
%s

For information about obtaining new authentication tokens from Elsevier Scopus, open the attached "Instructions" document.

%s`, resetURL, signoff)

	htmlBody := fmt.Sprintf(`<html>
<head></head>
<body>
<p>Dear CSER Admin,<br><br>
To reset Elsevier Scopus authentication tokens, click this link:<br>
<a href="%s">%s</a><br>
<br>
For information about obtaining new authentication tokens from Elsevier Scopus, open the attached "Instructions" document.<br>
<br>
Regards,<br><br>
X-Risk/TERRA Sysadmin System
</p>
</body>
</html>`, resetURL, resetURL)

	return Message{Subject: SubjectReset, Text: text, HTML: htmlBody}
}
