package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateNarration(); err != nil {
		return err
	}
	if err := c.validateCover(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateIcons(); err != nil {
		return err
	}
	if topic := c.Notifications.NtfyTopic; topic != "" &&
		!strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be a full URL (got %q)", topic)
	}
	return nil
}

func (c *Config) validateNarration() error {
	if len(c.Narration.Command) == 0 {
		return nil
	}
	if strings.TrimSpace(c.Narration.Command[0]) == "" {
		return errors.New("narration.command: executable must not be empty")
	}
	if !templateMentions(c.Narration.Command, "{output}") {
		return errors.New("narration.command must reference {output} so clips land at predictable paths")
	}
	if !templateMentions(c.Narration.Command, "{text}") {
		return errors.New("narration.command must reference {text}")
	}
	return nil
}

func (c *Config) validateCover() error {
	switch c.Cover.Renderer {
	case "builtin":
		switch c.Cover.ImageExt {
		case "png", "jpg", "jpeg":
		default:
			return fmt.Errorf("cover.image_ext must be png, jpg or jpeg for the builtin renderer (got %q)", c.Cover.ImageExt)
		}
	case "command":
		if len(c.Cover.Command) == 0 || strings.TrimSpace(c.Cover.Command[0]) == "" {
			return errors.New("cover.command is required when cover.renderer is \"command\"")
		}
		if !templateMentions(c.Cover.Command, "{output}") {
			return errors.New("cover.command must reference {output}")
		}
	default:
		return fmt.Errorf("cover.renderer: unsupported value %q (use builtin or command)", c.Cover.Renderer)
	}
	return nil
}

func (c *Config) validateAudio() error {
	if c.Audio.BackgroundVolumeDB >= 0 {
		return fmt.Errorf("audio.background_volume_db must be negative so background stays under narration (got %.1f)", c.Audio.BackgroundVolumeDB)
	}
	return nil
}

func (c *Config) validateIcons() error {
	if c.Icons.FuzzyThreshold > 1 {
		return errors.New("icons.fuzzy_threshold must be between 0 and 1")
	}
	if c.Icons.KeywordThreshold > 1 {
		return errors.New("icons.keyword_threshold must be between 0 and 1")
	}
	return nil
}

func templateMentions(argv []string, placeholder string) bool {
	for _, arg := range argv {
		if strings.Contains(arg, placeholder) {
			return true
		}
	}
	return false
}
