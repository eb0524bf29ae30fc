package ports

import "twitchbot/internal/app/domain/command"

type CommandRegistry interface {
	Get(name string) (*command.Command, error)
	List() []command.Info
}
