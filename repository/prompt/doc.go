// Package prompt asks a person at the terminal for repository credentials.
//
// SurveyRequester implements repository.CredentialsRequester with survey
// prompts. When stdin is not a terminal every request is declined, so
// unattended runs fail with a declined-credentials error instead of hanging.
package prompt
