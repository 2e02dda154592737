package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

// TestCommandCreation verifies that commands can be created with the builder pattern
func TestCommandCreation(t *testing.T) {
	handler := func(ctx *CommandContext) error {
		return nil
	}

	cmd := NewCommand("test", "Test command", "test", handler)

	if cmd == nil {
		t.Fatal("NewCommand returned nil")
	}

	if cmd.Name != "test" {
		t.Errorf("Name = %v, want %v", cmd.Name, "test")
	}

	if cmd.Description != "Test command" {
		t.Errorf("Description = %v, want %v", cmd.Description, "Test command")
	}

	if cmd.Category != "test" {
		t.Errorf("Category = %v, want %v", cmd.Category, "test")
	}

	if cmd.Run == nil {
		t.Error("Run function is nil")
	}
}

// TestCommandWithOptions verifies the WithOptions builder method
func TestCommandWithOptions(t *testing.T) {
	handler := func(ctx *CommandContext) error {
		return nil
	}

	option := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "test-option",
		Description: "Test option",
		Required:    true,
	}

	cmd := NewCommand("test", "Test command", "test", handler).
		WithOptions(option)

	if cmd.Options == nil {
		t.Fatal("Options is nil")
	}

	if len(cmd.Options) != 1 {
		t.Fatalf("Options length = %v, want %v", len(cmd.Options), 1)
	}

	if cmd.Options[0].Name != "test-option" {
		t.Errorf("Option name = %v, want %v", cmd.Options[0].Name, "test-option")
	}
}

// TestCommandWithPermissions verifies the permission builder methods
func TestCommandWithPermissions(t *testing.T) {
	handler := func(ctx *CommandContext) error {
		return nil
	}

	cmd := NewCommand("test", "Test command", "test", handler).
		WithUserPermissions(discordgo.PermissionAdministrator).
		WithBotPermissions(discordgo.PermissionSendMessages)

	if cmd.UserPermissions != discordgo.PermissionAdministrator {
		t.Errorf("UserPermissions = %v, want %v", cmd.UserPermissions, discordgo.PermissionAdministrator)
	}

	if cmd.BotPermissions != discordgo.PermissionSendMessages {
		t.Errorf("BotPermissions = %v, want %v", cmd.BotPermissions, discordgo.PermissionSendMessages)
	}
}

// TestCommandAsDev verifies the AsDev builder method
func TestCommandAsDev(t *testing.T) {
	handler := func(ctx *CommandContext) error {
		return nil
	}

	cmd := NewCommand("test", "Test command", "test", handler).AsDev()

	if !cmd.IsDev {
		t.Error("IsDev should be true after calling AsDev()")
	}
}

// TestToApplicationCommand verifies conversion to Discord application command
func TestToApplicationCommand(t *testing.T) {
	handler := func(ctx *CommandContext) error {
		return nil
	}

	option := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "test-option",
		Description: "Test option",
		Required:    true,
	}

	cmd := NewCommand("test", "Test command", "test", handler).
		WithOptions(option)

	appCmd := cmd.ToApplicationCommand()

	if appCmd == nil {
		t.Fatal("ToApplicationCommand returned nil")
	}

	if appCmd.Name != "test" {
		t.Errorf("ApplicationCommand Name = %v, want %v", appCmd.Name, "test")
	}

	if appCmd.Description != "Test command" {
		t.Errorf("ApplicationCommand Description = %v, want %v", appCmd.Description, "Test command")
	}

	if len(appCmd.Options) != 1 {
		t.Fatalf("ApplicationCommand Options length = %v, want %v", len(appCmd.Options), 1)
	}
}

// TestGuildOnlyCommand verifies permissions and guild restriction reach Discord
func TestGuildOnlyCommand(t *testing.T) {
	cmd := NewCommand("config", "Config", "moderation", func(ctx *CommandContext) error { return nil }).
		WithUserPermissions(discordgo.PermissionManageGuild).
		InGuild()

	appCmd := cmd.ToApplicationCommand()
	if appCmd.DefaultMemberPermissions == nil || *appCmd.DefaultMemberPermissions != discordgo.PermissionManageGuild {
		t.Errorf("DefaultMemberPermissions = %v, want %v", appCmd.DefaultMemberPermissions, discordgo.PermissionManageGuild)
	}
	if appCmd.DMPermission == nil || *appCmd.DMPermission {
		t.Error("DMPermission should be false for guild-only commands")
	}
}

func TestCommandKey(t *testing.T) {
	tests := []struct {
		name string
		data discordgo.ApplicationCommandInteractionData
		want string
	}{
		{
			name: "plain",
			data: discordgo.ApplicationCommandInteractionData{Name: "ping"},
			want: "ping",
		},
		{
			name: "subcommand",
			data: discordgo.ApplicationCommandInteractionData{
				Name: "config",
				Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{Name: "show", Type: discordgo.ApplicationCommandOptionSubCommand},
				},
			},
			want: "config.show",
		},
		{
			name: "subcommand group",
			data: discordgo.ApplicationCommandInteractionData{
				Name: "mod",
				Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{Name: "warns", Type: discordgo.ApplicationCommandOptionSubCommandGroup, Options: []*discordgo.ApplicationCommandInteractionDataOption{
						{Name: "reset", Type: discordgo.ApplicationCommandOptionSubCommand},
					}},
				},
			},
			want: "mod.warns.reset",
		},
		{
			name: "option only",
			data: discordgo.ApplicationCommandInteractionData{
				Name: "warns",
				Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{Name: "user", Type: discordgo.ApplicationCommandOptionUser},
				},
			},
			want: "warns",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := commandKey(tt.data); got != tt.want {
				t.Errorf("commandKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasPermissions(t *testing.T) {
	ctxFor := func(member *discordgo.Member) *CommandContext {
		return &CommandContext{Interaction: &discordgo.InteractionCreate{
			Interaction: &discordgo.Interaction{Member: member},
		}}
	}

	tests := []struct {
		name   string
		member *discordgo.Member
		perms  int64
		want   bool
	}{
		{"no permissions needed", nil, 0, true},
		{"direct message", nil, discordgo.PermissionManageGuild, false},
		{"missing", &discordgo.Member{Permissions: discordgo.PermissionSendMessages}, discordgo.PermissionManageGuild, false},
		{"granted", &discordgo.Member{Permissions: discordgo.PermissionManageGuild | discordgo.PermissionSendMessages}, discordgo.PermissionManageGuild, true},
		{"administrator", &discordgo.Member{Permissions: discordgo.PermissionAdministrator}, discordgo.PermissionModerateMembers, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ctxFor(tt.member).HasPermissions(tt.perms); got != tt.want {
				t.Errorf("HasPermissions() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBotHasPermissions(t *testing.T) {
	ctxFor := func(app int64) *CommandContext {
		return &CommandContext{Interaction: &discordgo.InteractionCreate{
			Interaction: &discordgo.Interaction{AppPermissions: app},
		}}
	}

	if !ctxFor(0).BotHasPermissions(0) {
		t.Error("no permissions needed should pass")
	}
	if ctxFor(discordgo.PermissionSendMessages).BotHasPermissions(discordgo.PermissionModerateMembers) {
		t.Error("missing ModerateMembers should fail")
	}
	if !ctxFor(discordgo.PermissionModerateMembers | discordgo.PermissionSendMessages).BotHasPermissions(discordgo.PermissionModerateMembers) {
		t.Error("granted ModerateMembers should pass")
	}
	if !ctxFor(discordgo.PermissionAdministrator).BotHasPermissions(discordgo.PermissionModerateMembers) {
		t.Error("administrator should pass")
	}
}
