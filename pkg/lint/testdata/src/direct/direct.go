package direct

import (
	"context"

	"github.com/hibiken/asynq"
)

func enqueueDirectly(client *asynq.Client) error {
	if _, err := client.Enqueue(asynq.NewTask("emails.send_welcome", nil)); err != nil { // want `asynq\.Client\.Enqueue bypasses airlock scopes`
		return err
	}
	_, err := client.EnqueueContext(context.Background(), asynq.NewTask("emails.send_welcome", nil)) // want `asynq\.Client\.EnqueueContext bypasses airlock scopes`
	return err
}

func enqueueFromMigration(client *asynq.Client) error {
	_, err := client.Enqueue(asynq.NewTask("reports.rebuild", nil)) // airlock:allow
	return err
}

func closeIsFine(client *asynq.Client) error {
	return client.Close()
}
