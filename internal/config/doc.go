// Package config provides configuration management for vahanpulse.
//
// # Configuration Sources
//
// Configuration is assembled in increasing order of precedence:
//
//	1. Default() values
//	2. A YAML file (VAHAN_CONFIG_FILE, config.yaml or configs/config.yaml)
//	3. Environment variables, optionally seeded from a .env file
//
// # Environment Variables
//
// Variables follow the VAHAN_<SECTION>_<FIELD> pattern:
//
//	VAHAN_SERVER_PORT=8080
//	VAHAN_SOURCE_KIND=sheets
//	VAHAN_SOURCE_SPREADSHEET_ID=1q4Qn32...
//	VAHAN_SCHEMA_COLLISION_POLICY=error
//	VAHAN_PATHS_CLEANED_PATH=data/processed/registrations.db
//
// Column inference rules are list-shaped and can only be set from YAML:
//
//	schema:
//	  collision_policy: keep_first
//	  rules:
//	    - field: date
//	      all_of: [date]
//	    - field: registrations
//	      any_of: [regist, count, units]
//
// No package-level path constants exist; callers pass the relevant section of
// *Config to the component that needs it.
package config
