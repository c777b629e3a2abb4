package main

import (
	"fmt"

	"commerce-service-go/internal/common"

	"github.com/spf13/cobra"
)

func wishlistCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wishlist",
		Short: "Inspect wishlists",
	}
	cmd.AddCommand(wishlistShowCmd(a))
	cmd.AddCommand(wishlistListCmd(a))
	return cmd
}

func wishlistShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [wishlist-id]",
		Short: "Show a wishlist and its active items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wishlistId, err := parseIdArg("wishlist id", args[0])
			if err != nil {
				return err
			}

			st, wishlists, err := common.InitializeWishlistsOnly(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			w, err := wishlists.Get(cmd.Context(), wishlistId)
			if err != nil {
				return err
			}
			common.PrintWishlist(cmd.OutOrStdout(), w)
			return nil
		},
	}
}

func wishlistListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's active wishlists",
		RunE: func(cmd *cobra.Command, args []string) error {
			rawUser, _ := cmd.Flags().GetString("user")
			userId, err := parseIdArg("user id", rawUser)
			if err != nil {
				return err
			}

			st, wishlists, err := common.InitializeWishlistsOnly(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			lists, err := wishlists.List(cmd.Context(), userId)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			common.PrintHeader(out, fmt.Sprintf("Wishlists for %s (%d)", userId, len(lists)), common.DefaultWidth)
			for i := range lists {
				common.PrintWishlist(out, &lists[i])
			}
			return nil
		},
	}
	cmd.Flags().String("user", "", "User id (required)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
