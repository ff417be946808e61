package common

// AuthorizationHeaderName carries the bearer token on REST requests.
const AuthorizationHeaderName = "Authorization"

// TokenQueryParam is the fallback location of the token for clients that
// cannot set headers (browser websocket handshakes, image tags).
const TokenQueryParam = "token"

// Difficulty levels accepted by the leaderboard.
var Difficulties = []string{"easy", "medium", "hard", "master"}

// IsDifficulty reports whether d is one of Difficulties.
func IsDifficulty(d string) bool {
	for _, v := range Difficulties {
		if v == d {
			return true
		}
	}
	return false
}
