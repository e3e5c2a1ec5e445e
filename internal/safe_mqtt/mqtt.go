/*
 * Copyright (c) 2023. Anton Starikov -- All Rights Reserved
 *
 * This file is part of HPTHERMO project.
 *
 * HPTHERMO is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as the Free Software Foundation,
 * either version 3 of the License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package safe_mqtt

import (
	"encoding/json"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"

	"github.com/antst/hpthermo/internal/logger"
)

const (
	reconnectInterval = 2 * time.Second
	connectAttempts   = 5
	publishTimeout    = 10 * time.Second
)

// MqttClient is bridge between our app and MQTT
type MqttClient interface {
	SafePublish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	SafeDisconnect()
}

type mqttClient struct {
	mutex sync.Mutex
	mqtt  mqtt.Client
}

var (
	connectHandler = func(client mqtt.Client) {
		or := client.OptionsReader()
		logger.L().Infof("Connected to MQTT broker: %v as %s", or.Servers(), or.ClientID())
	}

	connectLostHandler = func(client mqtt.Client, err error) {
		logger.L().Warnf("Connection to MQTT broker lost: %v", err)
	}
)

// InitMQTTClient connects to the broker, giving up after a few attempts. A batch run
// has nothing to wait for, so an unreachable broker is an error rather than a stall.
func InitMQTTClient(url, clientID string) (MqttClient, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(url).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(reconnectInterval)

	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler

	client := mqtt.NewClient(opts)
	if err := connectMQTT(client, connectAttempts); err != nil {
		return nil, err
	}

	return &mqttClient{
		mqtt: client,
	}, nil
}

func connectMQTT(client mqtt.Client, attempts int) error {
	var err error
	for i := 0; i < attempts; i++ {
		token := client.Connect()
		if token.Wait() && token.Error() == nil {
			return nil
		}
		err = token.Error()
		if i == attempts-1 {
			break
		}
		logger.L().Warnf("Connection failed, retrying in %v: %v", reconnectInterval, err)
		time.Sleep(reconnectInterval)
	}
	return errors.Wrapf(err, "mqtt connect after %d attempts", attempts)
}

func (m *mqttClient) SafePublish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.mqtt.Publish(topic, qos, retained, payload)
}

func (m *mqttClient) SafeDisconnect() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.mqtt.Disconnect(250)
}

// PublishJSON sends v as a retained JSON message and waits for the broker to take it.
func PublishJSON(c MqttClient, topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "marshal payload for %s", topic)
	}
	token := c.SafePublish(topic, 1, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return errors.Errorf("publish to %s timed out", topic)
	}
	return errors.Wrapf(token.Error(), "publish to %s", topic)
}
