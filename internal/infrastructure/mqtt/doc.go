// Package mqtt provides MQTT connectivity for nlogd.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support, restored on reconnect
//   - Last Will and Testament (LWT) on the instance status topic
//   - Connection health monitoring
//
// # Topics
//
// Every pipeline instance owns a subtree under nlog/{instance}:
//
//	nlog/{instance}/status            retained online/offline status
//	nlog/{instance}/event/changed     configuration swapped
//	nlog/{instance}/event/reloaded    timer-driven reload outcome
//	nlog/{instance}/command/{action}  suspend, resume, reload, unload
//
// # Usage
//
//	topics := mqtt.NewTopics("default")
//	client, err := mqtt.Connect(cfg.MQTT, topics)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(topics.AllCommands(), 1,
//	    func(topic string, payload []byte) error {
//	        return nil
//	    })
//
// # Security Considerations
//
//   - Use TLS outside local development (cfg.Broker.TLS=true)
//   - Commands are not authenticated beyond broker ACLs
package mqtt
