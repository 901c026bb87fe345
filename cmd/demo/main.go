// Command demo runs the offline walkthrough: a scripted room lifecycle
// against the local JSON sandbox store, with no database or Redis required.
package main

import (
	"flag"

	"study-room/internal/sandbox"

	"github.com/sirupsen/logrus"
)

func main() {
	storePath := flag.String("store", "demo-data/sandbox.json", "path of the sandbox store file")
	flag.Parse()

	store, err := sandbox.Open(*storePath)
	if err != nil {
		logrus.Fatalf("Failed to open sandbox store: %v", err)
	}

	events, cancel := store.Subscribe()
	defer cancel()
	go func() {
		for ev := range events {
			logrus.WithFields(logrus.Fields{"key": ev.Key, "op": ev.Op}).Info("Sandbox store changed")
		}
	}()

	room, err := store.CreateRoom("Evening Study", "Quiet focus session", "book", "Alice", 5)
	if err != nil {
		logrus.Fatalf("Failed to create demo room: %v", err)
	}
	logrus.WithFields(logrus.Fields{
		"room_id":     room.ID,
		"invite_code": room.InviteCode,
	}).Info("Demo room created")

	if _, err := store.JoinRoom(room.ID, "Bob"); err != nil {
		logrus.Fatalf("Failed to join demo room: %v", err)
	}

	creator := room.Members[0]
	if _, err := store.AppendMessage(room.ID, creator.ID, "Welcome to the study room!"); err != nil {
		logrus.Fatalf("Failed to append demo message: %v", err)
	}

	rooms, err := store.Rooms()
	if err != nil {
		logrus.Fatalf("Failed to list demo rooms: %v", err)
	}
	for _, r := range rooms {
		logrus.WithFields(logrus.Fields{
			"room_id":  r.ID,
			"name":     r.Name,
			"members":  len(r.Members),
			"messages": len(r.Messages),
		}).Info("Demo room state")
	}
}
