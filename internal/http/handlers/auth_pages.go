package handlers

import (
	"html/template"
	"io"
	"net/url"
	"strings"
)

// The custom-scheme deep link only ever appears in an href so that the
// scripts stay static.
var successPage = template.Must(template.New("auth_success").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <title>Redirecting...</title>
  </head>
  <body style="font-family: system-ui; text-align: center; padding: 50px;">
    <h2>✅ Authentication Successful</h2>
    <p id="message">Redirecting to SoloLev app...</p>
    <p id="fallback" hidden>If you are not redirected automatically, <a id="continue" href="{{.Target}}">click here</a></p>
    <script>
      window.location.href = document.getElementById("continue").href;
      setTimeout(function () {
        document.getElementById("message").hidden = true;
        document.getElementById("fallback").hidden = false;
      }, 2000);
    </script>
  </body>
</html>
`))

var failurePage = template.Must(template.New("auth_failure").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <title>Authentication Error</title>
  </head>
  <body style="font-family: system-ui; text-align: center; padding: 50px;">
    <h2>❌ Authentication Failed</h2>
    <p>Redirecting back to app...</p>
    <a id="continue" href="{{.Target}}" hidden>Return to app</a>
    <script>
      setTimeout(function () {
        window.location.href = document.getElementById("continue").href;
      }, 1000);
    </script>
  </body>
</html>
`))

type callbackPageData struct {
	Target template.URL
}

func renderSuccessPage(w io.Writer, appRedirectURL, token string) error {
	return successPage.Execute(w, callbackPageData{Target: template.URL(deepLink(appRedirectURL, "token", token))})
}

func renderFailurePage(w io.Writer, appRedirectURL string) error {
	return failurePage.Execute(w, callbackPageData{Target: template.URL(deepLink(appRedirectURL, "error", "auth_failed"))})
}

// deepLink appends key=value to base, keeping any query base already has.
func deepLink(base, key, value string) string {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil || u.Scheme == "" {
		sep := "?"
		if strings.Contains(base, "?") {
			sep = "&"
		}
		return base + sep + key + "=" + url.QueryEscape(value)
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
