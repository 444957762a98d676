// Package config loads tick's backend and file settings.
//
// Load reads ~/.config/tick/config.toml (or an explicit path), then applies
// a .env file from the working directory and TICK_* environment variables on
// top. A missing file is not an error; Validate reports what is still needed
// to reach the backend.
//
// Example config.toml:
//
//	endpoint = "https://xxxx.appsync-api.eu-west-1.amazonaws.com/graphql"
//	api_key = "da2-..."
//	auth_mode = "api_key"        # or "user_pool"
//	id_token_file = "~/.config/tick/id_token"
//	log_file = "~/.local/state/tick/tick.log"
//	mutation_timeout = "10s"
//
// Environment overrides: TICK_ENDPOINT, TICK_REALTIME_ENDPOINT, TICK_API_KEY,
// TICK_AUTH_MODE, TICK_ID_TOKEN, TICK_ID_TOKEN_FILE, TICK_LOG_FILE and
// TICK_MUTATION_TIMEOUT.
package config
