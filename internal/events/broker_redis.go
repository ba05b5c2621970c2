package events

import (
    "context"
    "encoding/json"
    "log"
    "sync"
    "time"

    redis "github.com/redis/go-redis/v9"
)

type EventBroker interface {
    Subscribe(topic string) chan Event
    Unsubscribe(topic string, ch chan Event)
    Publish(topic string, evt Event)
    Close() error
}

var (
    _ EventBroker = (*Broker)(nil)
    _ EventBroker = (*RedisBroker)(nil)
)

// RedisBroker implements EventBroker over Redis Pub/Sub so several API
// replicas can serve the same planning session.
type RedisBroker struct {
    rdb *redis.Client

    mu   sync.Mutex
    subs map[chan Event]*redis.PubSub

    // Publish hands events to one writer goroutine so callers never wait on Redis.
    out       chan outbound
    done      chan struct{}
    closeOnce sync.Once
}

type outbound struct {
    channel string
    data    []byte
}

const publishQueue = 256

func NewRedisBroker(url string) (*RedisBroker, error) {
    opt, err := redis.ParseURL(url)
    if err != nil { return nil, err }
    b := &RedisBroker{
        rdb:  redis.NewClient(opt),
        subs: map[chan Event]*redis.PubSub{},
        out:  make(chan outbound, publishQueue),
        done: make(chan struct{}),
    }
    go b.writer()
    return b, nil
}

// Ping checks the Redis connection.
func (b *RedisBroker) Ping(ctx context.Context) error { return b.rdb.Ping(ctx).Err() }

func (b *RedisBroker) Subscribe(topic string) chan Event {
    ch := make(chan Event, 32)
    ctx := context.Background()
    ps := b.rdb.Subscribe(ctx, b.chanName(topic))
    // wait for the subscription to be confirmed
    if _, err := ps.Receive(ctx); err != nil {
        log.Printf("redis subscribe topic=%s err=%v", topic, err)
    }
    b.mu.Lock()
    b.subs[ch] = ps
    b.mu.Unlock()
    msgs := ps.Channel()
    go func() {
        defer close(ch)
        for msg := range msgs {
            var evt Event
            if err := json.Unmarshal([]byte(msg.Payload), &evt); err == nil {
                select { case ch <- evt: default: }
            }
        }
    }()
    return ch
}

// Unsubscribe closes the Pub/Sub connection; ch is closed once its reader
// goroutine drains.
func (b *RedisBroker) Unsubscribe(topic string, ch chan Event) {
    b.mu.Lock()
    ps := b.subs[ch]
    delete(b.subs, ch)
    b.mu.Unlock()
    if ps != nil { _ = ps.Close() }
}

// Publish queues evt and returns immediately. Events are dropped when the
// queue is full or the broker is closed.
func (b *RedisBroker) Publish(topic string, evt Event) {
    data, err := json.Marshal(evt)
    if err != nil { return }
    select {
    case <-b.done:
        return
    default:
    }
    select {
    case b.out <- outbound{channel: b.chanName(topic), data: data}:
    default:
        log.Printf("redis publish queue full, dropped topic=%s type=%s", topic, evt.Type)
    }
}

func (b *RedisBroker) writer() {
    for {
        select {
        case <-b.done:
            return
        case m := <-b.out:
            ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
            if err := b.rdb.Publish(ctx, m.channel, m.data).Err(); err != nil {
                log.Printf("redis publish channel=%s err=%v", m.channel, err)
            }
            cancel()
        }
    }
}

func (b *RedisBroker) Close() error {
    b.closeOnce.Do(func() { close(b.done) })
    b.mu.Lock()
    for ch, ps := range b.subs {
        _ = ps.Close()
        delete(b.subs, ch)
    }
    b.mu.Unlock()
    return b.rdb.Close()
}

func (b *RedisBroker) chanName(topic string) string { return "vorp:" + topic }
