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
	"math"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	err  error
	done bool
}

func (t *fakeToken) Wait() bool                     { return t.done }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return t.done }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if t.done {
		close(ch)
	}
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type message struct {
	topic    string
	retained bool
	payload  []byte
}

type fakeClient struct {
	token *fakeToken
	sent  []message
}

func (c *fakeClient) SafePublish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	c.sent = append(c.sent, message{topic: topic, retained: retained, payload: payload.([]byte)})
	return c.token
}

func (c *fakeClient) SafeDisconnect() {}

func TestPublishJSON(t *testing.T) {
	c := &fakeClient{token: &fakeToken{done: true}}
	require.NoError(t, PublishJSON(c, "hpthermo/b1/params", map[string]float64{"a": 0.9}))

	require.Len(t, c.sent, 1)
	assert.Equal(t, "hpthermo/b1/params", c.sent[0].topic)
	assert.True(t, c.sent[0].retained)
	var got map[string]float64
	require.NoError(t, json.Unmarshal(c.sent[0].payload, &got))
	assert.Equal(t, 0.9, got["a"])
}

func TestPublishJSON_Errors(t *testing.T) {
	brokerErr := errors.New("not authorized")
	c := &fakeClient{token: &fakeToken{done: true, err: brokerErr}}
	err := PublishJSON(c, "t", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, brokerErr))

	c = &fakeClient{token: &fakeToken{done: false}}
	assert.ErrorContains(t, PublishJSON(c, "t", 1), "timed out")

	c = &fakeClient{token: &fakeToken{done: true}}
	assert.Error(t, PublishJSON(c, "t", math.NaN()), "NaN is not valid JSON")
	assert.Empty(t, c.sent)
}

type refusingBroker struct {
	mqtt.Client
	connects int
}

func (b *refusingBroker) Connect() mqtt.Token {
	b.connects++
	return &fakeToken{done: true, err: errors.New("connection refused")}
}

func TestConnectMQTT_NoWaitAfterLastAttempt(t *testing.T) {
	b := &refusingBroker{}
	start := time.Now()
	err := connectMQTT(b, 1)
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection refused")
	assert.Equal(t, 1, b.connects)
	assert.Less(t, time.Since(start), reconnectInterval)
}
