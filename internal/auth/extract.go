package auth

// The backend's auth endpoints have been observed answering in several
// shapes: the interesting field may sit under "data", under "result" or at
// the top level, and may be spelled differently per endpoint. Extraction is
// an explicit ordered strategy list; the order is the wire-observed
// precedence and must not be reordered.

// loginTokenFields is the precedence order for the login-token step
var loginTokenFields = []string{"token", "access_token", "accessToken"}

// accessTokenFields is the precedence order for the user-access-token step
var accessTokenFields = []string{"token", "userAccessToken", "accessToken"}

// exchangeCodeFields is the precedence order for the code-exchange step
var exchangeCodeFields = []string{"code", "accessToken"}

// extractString walks the candidate fields in order: first inside the first
// present container ("data", then "result", else the payload itself), then
// at the top level. Only string values count; the numeric envelope code can
// never be mistaken for an authorization code. Returns false when every
// candidate is absent.
func extractString(payload map[string]interface{}, fields []string) (string, bool) {
	container := payload
	if d, ok := payload["data"].(map[string]interface{}); ok {
		container = d
	} else if r, ok := payload["result"].(map[string]interface{}); ok {
		container = r
	}

	for _, f := range fields {
		if s, ok := container[f].(string); ok && s != "" {
			return s, true
		}
	}
	for _, f := range fields {
		if s, ok := payload[f].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// responseSuccessful mirrors the backend's loose success contract: an
// explicit success flag, an application code of 0 or 200, or no code at all
// on a 2xx response.
func responseSuccessful(payload map[string]interface{}) bool {
	if success, ok := payload["success"].(bool); ok && success {
		return true
	}
	code, present := payload["code"]
	if !present {
		return true
	}
	if n, ok := code.(float64); ok {
		return n == 0 || n == 200
	}
	return false
}

// responseMessage pulls a human message out of a failed payload
func responseMessage(payload map[string]interface{}) string {
	if msg, ok := payload["message"].(string); ok && msg != "" {
		return msg
	}
	if msg, ok := payload["msg"].(string); ok && msg != "" {
		return msg
	}
	return ""
}
