// Package google provides OAuth2 credentials and authenticated HTTP clients
// for the Google Calendar and Sheets APIs.
//
// Three credential shapes are supported: an OAuth client secret combined with
// per-account user tokens stored on disk, a service account key (optionally
// impersonating a Workspace user), and Application Default Credentials.
package google
