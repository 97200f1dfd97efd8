package session

import "net/url"

const downloadBase = "/api/download/"

// ArchiveURL is the download location of a session archive
func ArchiveURL(id string) string {
	return downloadBase + url.PathEscape(id)
}

// FileURL is the download location of one processed file
func FileURL(id, name string) string {
	return downloadBase + url.PathEscape(id) + "/" + url.PathEscape(name)
}
