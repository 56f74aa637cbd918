package notifier_test

import (
	"fmt"
	"time"

	notifier "github.com/joeycumines/go-notifier"
)

// Example demonstrates scheduling a one-shot deadline and observing it on
// the next Wait call.
func Example() {
	codec := notifier.KeyCodec[string]{
		ToToken:   func(k string) notifier.Token { return notifier.Token(len(k)) },
		FromToken: func(t notifier.Token) string { return fmt.Sprintf("key-%d", t) },
	}

	n, err := notifier.New(codec)
	if err != nil {
		panic(err)
	}
	defer n.Close()

	n.Context("hi").AddInstant(time.Now())

	n.Wait(func(key string, readiness notifier.Readiness) {
		fmt.Println(key, readiness)
	})

	// Output:
	// hi 0
}
