package deployment

import "strings"

// SiteHost strips the scheme and trailing slashes from a site URL
func SiteHost(siteURL string) string {
	host := strings.TrimPrefix(siteURL, "https://")
	host = strings.TrimPrefix(host, "http://")
	return strings.TrimRight(host, "/")
}

// SiteBaseURL returns https://<host>/ for a site given with or without scheme
func SiteBaseURL(siteURL string) string {
	return "https://" + SiteHost(siteURL) + "/"
}

// ComponentURL links to the component page of slug on site
func ComponentURL(siteURL, slug string) string {
	return SiteBaseURL(siteURL) + "compass/component/" + slug
}
