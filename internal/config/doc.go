// Package config loads availcheck settings from an optional YAML file, a .env
// file and AVAILCHECK_* environment variables. Command-line flags are applied
// on top by the cmd package.
//
// Example availcheck.yaml:
//
//	users:
//	  - alice@example.com
//	  - bob@example.com
//	time_zone: Europe/Moscow
//	locale: ru
//	spreadsheet_id: 1AbC...
//	credentials_file: client_secret.json
//	concurrency: 4
//	query_timeout: 30s
package config
