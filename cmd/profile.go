package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/journal"
	"github.com/ashtangalog/ashtanga/internal/media"
	"github.com/ashtangalog/ashtanga/internal/model"
	"github.com/ashtangalog/ashtanga/internal/storage"
)

// Profile command flags.
var (
	profileFlagName      string
	profileFlagSignature string
	avatarFlagClear      bool
	avatarFlagSave       string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or change your profile",
	Args:  cobra.NoArgs,
	RunE:  runProfileShow,
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your profile",
	Args:  cobra.NoArgs,
	RunE:  runProfileShow,
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change your name or signature",
	Long: `Change your profile name or signature.

Examples:
  ashtanga profile set --name "Ana" --signature "99% practice, 1% theory"`,
	Args: cobra.NoArgs,
	RunE: runProfileSet,
}

var profileAvatarCmd = &cobra.Command{
	Use:   "avatar [FILE]",
	Short: "Set your avatar from an image",
	Long: `Set your avatar from a jpg, png, gif or webp image. The image is scaled
down and stored on this device only; it is never uploaded.

  ashtanga profile avatar me.jpg
  ashtanga profile avatar --save avatar.jpg
  ashtanga profile avatar --clear`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProfileAvatar,
}

func init() {
	profileSetCmd.Flags().StringVar(&profileFlagName, "name", "", "Display name")
	profileSetCmd.Flags().StringVar(&profileFlagSignature, "signature", "", "Signature line")
	profileAvatarCmd.Flags().BoolVar(&avatarFlagClear, "clear", false, "Remove the avatar")
	profileAvatarCmd.Flags().StringVar(&avatarFlagSave, "save", "", "Write the current avatar image to `FILE`")

	profileCmd.AddCommand(profileShowCmd, profileSetCmd, profileAvatarCmd)
	rootCmd.AddCommand(profileCmd)
}

func printProfile(p *model.UserProfile) error {
	if ctx.IsJSON() {
		return ctx.JSONFormatter().JSON(p)
	}
	ctx.CLIFormatter().PrintProfile(p)
	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	p, err := ctx.Journal.Profile()
	if err != nil {
		return err
	}
	return printProfile(p)
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	var patch journal.ProfilePatch
	if cmd.Flags().Changed("name") {
		patch.Name = &profileFlagName
	}
	if cmd.Flags().Changed("signature") {
		patch.Signature = &profileFlagSignature
	}
	if patch.Name == nil && patch.Signature == nil {
		return errors.NewValidationError("profile", "nothing to change", "Pass --name or --signature")
	}
	p, err := ctx.Journal.UpdateProfile(patch)
	if err != nil {
		return err
	}
	return printProfile(p)
}

func runProfileAvatar(cmd *cobra.Command, args []string) error {
	if avatarFlagSave != "" {
		return saveAvatar(avatarFlagSave)
	}

	var avatar string
	switch {
	case avatarFlagClear:
	case len(args) == 1:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return errors.NewValidationErrorWithValue("avatar", args[0], "cannot read image", err.Error())
		}
		photo := ctx.Config.Photo
		avatar, err = media.Avatar(data, photo.MaxBytes, photo.AvatarMaxDimension, photo.AvatarQuality)
		if err != nil {
			return err
		}
	default:
		return errors.NewValidationError("avatar", "no image given", "Pass an image file or --clear")
	}

	p, err := ctx.Journal.UpdateProfile(journal.ProfilePatch{Avatar: &avatar})
	if err != nil {
		return err
	}
	return printProfile(p)
}

func saveAvatar(path string) error {
	p, err := ctx.Journal.Profile()
	if err != nil {
		return err
	}
	if p.Avatar == "" {
		return errors.NewValidationError("avatar", "no avatar set", "Set one with 'ashtanga profile avatar FILE'")
	}
	data, _, err := media.DecodeDataURI(p.Avatar)
	if err != nil {
		return err
	}
	if err := storage.SafeWrite(path, data, 0o600); err != nil {
		return err
	}
	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintOK("saved", path)
	}
	ctx.CLIFormatter().Success("Avatar saved to " + path)
	return nil
}
