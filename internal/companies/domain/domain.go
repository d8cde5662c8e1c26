// Package domain normalizes company web domains to their registrable form so
// that "https://www.Acme.co.uk:443/about" and "mail.acme.co.uk" both resolve
// to "acme.co.uk".
package domain

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// freeMail lists consumer mailbox providers. Their domains never identify an employer.
var freeMail = map[string]struct{}{
	"gmail.com": {}, "googlemail.com": {}, "yahoo.com": {}, "yahoo.co.uk": {}, "ymail.com": {},
	"hotmail.com": {}, "hotmail.co.uk": {}, "outlook.com": {}, "live.com": {}, "msn.com": {},
	"icloud.com": {}, "me.com": {}, "mac.com": {}, "aol.com": {}, "proton.me": {},
	"protonmail.com": {}, "gmx.com": {}, "gmx.de": {}, "gmx.net": {}, "web.de": {},
	"mail.com": {}, "zoho.com": {}, "yandex.com": {}, "yandex.ru": {}, "mail.ru": {},
	"qq.com": {}, "163.com": {}, "fastmail.com": {}, "hey.com": {}, "tutanota.com": {},
	"kpnmail.nl": {}, "ziggo.nl": {}, "orange.fr": {}, "free.fr": {}, "t-online.de": {},
}

// Normalize reduces a host, URL or bare domain to its lower-case eTLD+1.
// It reports false for input that has no registrable domain (IPs, localhost,
// bare public suffixes).
func Normalize(raw string) (string, bool) {
	host := strings.ToLower(strings.TrimSpace(raw))
	if host == "" {
		return "", false
	}
	if strings.Contains(host, "://") {
		u, err := url.Parse(host)
		if err != nil {
			return "", false
		}
		host = u.Host
	} else if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	if at := strings.LastIndex(host, "@"); at >= 0 {
		host = host[at+1:]
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.TrimPrefix(host, "www."), ".")
	if host == "" || !strings.Contains(host, ".") || net.ParseIP(host) != nil {
		return "", false
	}

	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return "", false
	}
	return registrable, true
}

// IsFreeMail reports whether domain belongs to a consumer mailbox provider.
func IsFreeMail(domain string) bool {
	_, ok := freeMail[strings.ToLower(domain)]
	return ok
}

// FromEmail returns the employer domain of an email address. Free-mail
// addresses report false.
func FromEmail(email string) (string, bool) {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return "", false
	}
	d, ok := Normalize(email[at+1:])
	if !ok || IsFreeMail(d) {
		return "", false
	}
	return d, true
}

// Resolve picks the first usable domain from, in order, the organization's
// primary domain, its website and the contact's email.
func Resolve(primaryDomain, websiteURL, email string) (string, bool) {
	if d, ok := Normalize(primaryDomain); ok && !IsFreeMail(d) {
		return d, true
	}
	if d, ok := Normalize(websiteURL); ok && !IsFreeMail(d) {
		return d, true
	}
	return FromEmail(email)
}
