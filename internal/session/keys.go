package session

import "fmt"

func Key(token string) string {
	return fmt.Sprintf("session:%s", token)
}

func RateLimitKey(tokenPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", tokenPrefix)
}
