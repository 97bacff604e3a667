// Package amqp implements the message broker interface for AMQP compliant brokers (ie RabbitMQ)
package amqp

import (
	"encoding/json"
	"strconv"
	"sync"

	"github.com/streadway/amqp"

	"github.com/tarancss/suiadp/lib/block/types"
	"github.com/tarancss/suiadp/lib/logx"
	"github.com/tarancss/suiadp/lib/msg"
)

// Exchanges declared by Setup.
const (
	walletExchange   = "wr"
	explorerExchange = "ee"
)

// Amqp implements a connection to a broker and a channel for reuse.
type Amqp struct {
	conn *amqp.Connection
	mu   sync.Mutex
	ch   *amqp.Channel
}

var _ msg.MsgBroker = (*Amqp)(nil)

// New instantiates a new amqp broker.
func New(uri string) (*Amqp, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, err
	}

	logx.Info("AMQP", "Connected to ", uri)

	return &Amqp{conn: conn}, nil
}

// Setup declares the message broker exchanges:
//
// - wr ("wallet requests"): the wallet service publishes requests to this exchange
//
// - ee ("explorer events"): the explorer service publishes events to this exchange
func (r *Amqp) Setup() error {
	// obtain a one-use channel
	channel, err := r.conn.Channel()
	if err != nil {
		return err
	}
	defer channel.Close()

	if err = channel.ExchangeDeclare(walletExchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return err
	}

	return channel.ExchangeDeclare(explorerExchange, amqp.ExchangeTopic, true, false, false, false, nil)
}

// Close terminates gracefully the connection to the AMQP message broker
func (r *Amqp) Close() error {
	r.mu.Lock()
	if r.ch != nil {
		if err := r.ch.Close(); err != nil {
			logx.Error("AMQP", "Error closing amqp.Channel: ", err)
		}

		r.ch = nil
	}
	r.mu.Unlock()

	return r.conn.Close()
}

// channel returns the shared channel, opening it if not present.
func (r *Amqp) channel() (*amqp.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ch == nil {
		ch, err := r.conn.Channel()
		if err != nil {
			return nil, err
		}

		r.ch = ch
	}

	return r.ch, nil
}

func (r *Amqp) publish(exchange, key, header string, v interface{}) error {
	jsonDoc, err := json.Marshal(v)
	if err != nil {
		return err
	}

	ch, err := r.channel()
	if err != nil {
		return err
	}

	return ch.Publish(exchange, key, false, false, amqp.Publishing{
		Headers:     amqp.Table{header: key},
		Body:        jsonDoc,
		ContentType: "application/json",
	})
}

// SendTrans publishes transaction events to the "ee" exchange
func (r *Amqp) SendTrans(net string, txs []types.Trans) error {
	for _, t := range txs {
		if err := r.publish(explorerExchange, net+".trans."+t.Digest, "x-trans-name", t); err != nil {
			logx.Error("AMQP", "[", net, "] Error sending transaction event to message broker: ", err)

			return err
		}
	}

	return nil
}

// SendRequest publishes a new wallet request to the "wr" exchange
func (r *Amqp) SendRequest(net string, wr msg.WalletReq) error {
	err := r.publish(walletExchange, net+"."+strconv.Itoa(wr.Type)+"."+wr.Obj, "x-wreq-name", wr)
	if err != nil {
		logx.Error("AMQP", "[", net, "] Error sending request to message broker: ", err)
	}

	return err
}

// consume declares the queue of a network, binds it to exchange and returns its deliveries.
func (r *Amqp) consume(exchange, net string) (<-chan amqp.Delivery, error) {
	ch, err := r.channel()
	if err != nil {
		return nil, err
	}

	queue := exchange + net
	if _, err = ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, err
	}

	if err = ch.QueueBind(queue, net+".*.*", exchange, false, nil); err != nil {
		return nil, err
	}

	return ch.Consume(queue, exchange+"-consumer-"+net, false, false, false, false, nil)
}

// deliver decodes each delivery into a T and pushes it to the returned channel. A message is only acknowledged after
// the consumer unlocks mut.
func deliver[T any](msgs <-chan amqp.Delivery, mut *sync.Mutex) (<-chan T, <-chan error) {
	out := make(chan T)
	errs := make(chan error)

	go func() {
		defer close(out)

		for m := range msgs {
			var v T
			if err := json.Unmarshal(m.Body, &v); err != nil {
				errs <- err

				_ = m.Nack(false, false)

				continue
			}

			out <- v

			mut.Lock() // wait for the consumer to finish processing the message
			_ = m.Ack(false)
		}
	}()

	return out, errs
}

// GetEvents consumes events from the "ee" exchange for the specified network pushing them to the returned channel.
func (r *Amqp) GetEvents(net string, mut *sync.Mutex) (<-chan types.Trans, <-chan error, error) {
	msgs, err := r.consume(explorerExchange, net)
	if err != nil {
		return nil, nil, err
	}

	eves, errs := deliver[types.Trans](msgs, mut)

	return eves, errs, nil
}

// GetReqs consumes requests from the "wr" exchange for the specified network pushing them to the returned channel.
func (r *Amqp) GetReqs(net string, mut *sync.Mutex) (<-chan msg.WalletReq, <-chan error, error) {
	msgs, err := r.consume(walletExchange, net)
	if err != nil {
		return nil, nil, err
	}

	reqs, errs := deliver[msg.WalletReq](msgs, mut)

	return reqs, errs, nil
}
