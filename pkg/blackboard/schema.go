package blackboard

import "fmt"

// Redis key pattern helpers
//
// All Redis keys and Pub/Sub channels are namespaced by instance name so that
// several games can publish to one Redis server without interfering.
//
// Key pattern: setgame:{instance_name}:{entity}

// EventsChannel returns the Pub/Sub channel carrying display events.
// Pattern: setgame:{instance_name}:events
func EventsChannel(instanceName string) string {
	return fmt.Sprintf("setgame:%s:events", instanceName)
}

// ScoresKey returns the Redis key of the scores hash.
// Pattern: setgame:{instance_name}:scores
func ScoresKey(instanceName string) string {
	return fmt.Sprintf("setgame:%s:scores", instanceName)
}

// WinnersKey returns the Redis key holding the final winner list.
// Pattern: setgame:{instance_name}:winners
func WinnersKey(instanceName string) string {
	return fmt.Sprintf("setgame:%s:winners", instanceName)
}
