package redis

import "strings"

const keyNamespace = "tix"

const (
	idempotencyPrefix = "idempotency"
	lockPrefix        = "lock"
	ratePrefix        = "rate"
)

// IdempotencyKey namespaces a dedupe key, e.g. tix:idempotency:webhook:mercadopago:<id>.
func (c *Client) IdempotencyKey(scope, id string) string {
	return joinKey(idempotencyPrefix, scope, id)
}

// LockKey namespaces a distributed lock name.
func (c *Client) LockKey(name string) string {
	return joinKey(lockPrefix, name)
}

// RateKey namespaces a rate limit bucket for subject under rule.
func (c *Client) RateKey(rule, subject string) string {
	return joinKey(ratePrefix, rule, subject)
}

// joinKey drops blank parts so a missing id never produces "a::b".
func joinKey(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}
