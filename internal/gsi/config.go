package gsi

import (
	"fmt"
	"os"
)

// DefaultAuthToken is the token baked into generated client configs when
// none is configured.
const DefaultAuthToken = "castmate"

// ClientConfig renders the game-side integration config that points the
// client's state reporting at our webhook. The data block requests every
// section the pipeline reads, plus the all-player sections used for future
// team context.
func ClientConfig(uri, token string) string {
	return fmt.Sprintf(`"Castmate"
{
	"uri" "%s"
	"timeout" "5.0"
	"buffer"  "0.1"
	"throttle" "0.1"
	"heartbeat" "10.0"

	"auth"
	{
		"token" "%s"
	}

	"data"
	{
		"provider"              "1"
		"match_stats"           "1"
		"player_id"             "1"
		"player_state"          "1"
		"player_match_stats"    "1"
		"player_weapons"        "1"
		"player_position"       "1"
		"round"                 "1"
		"phase_countdowns"      "1"
		"bomb"                  "1"
		"map"                   "1"
		"map_round_wins"        "1"
		"allplayers_id"         "1"
		"allplayers_state"      "1"
		"allplayers_match_stats"    "1"
		"allplayers_weapons"        "1"
		"allplayers_position"       "1"
		"allgrenades"           "1"
	}
}
`, uri, token)
}

// WriteClientConfig writes the integration config to path. The file goes
// into the game's cfg directory; the client picks it up on launch.
func WriteClientConfig(path, uri, token string) error {
	if token == "" {
		token = DefaultAuthToken
	}
	if err := os.WriteFile(path, []byte(ClientConfig(uri, token)), 0o644); err != nil {
		return fmt.Errorf("writing client config: %w", err)
	}
	return nil
}
