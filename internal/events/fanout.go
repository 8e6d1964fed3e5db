package events

// Publisher is anything notifications can be published to.
type Publisher interface {
	Publish(name string, payload any)
}

// Fanout publishes each notification to every member in order.
type Fanout []Publisher

func (f Fanout) Publish(name string, payload any) {
	for _, p := range f {
		if p != nil {
			p.Publish(name, payload)
		}
	}
}
