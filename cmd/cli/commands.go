package main

import (
	"github.com/eflab/nwbtrials/pkg/nwbtrials"
	"github.com/spf13/cobra"
)

func (a *app) metaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "meta <file.nwb>",
		Short: "List response series indexed by trial",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(args[0], func(s *nwbtrials.Session) error {
				rows, err := s.LoadMetaData()
				if err != nil {
					return err
				}
				renderFileHeader(cmd.OutOrStdout(), args[0])
				renderIndex(cmd.OutOrStdout(), rows)
				return nil
			})
		},
	}
}

func (a *app) ratesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rates <file.nwb>",
		Short: "Estimate per-trial sampling rates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(args[0], func(s *nwbtrials.Session) error {
				ex, err := s.LoadDFOverFData()
				if err != nil {
					return err
				}
				rates, err := s.LoadSamplingRateInfo(ex)
				if err != nil {
					return err
				}
				renderRates(cmd.OutOrStdout(), rates)
				return nil
			})
		},
	}
}

func (a *app) stimulusCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "stimulus <file.nwb>",
		Short: "Show the stimulus interval table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(args[0], func(s *nwbtrials.Session) error {
				table, err := s.LoadStimulusData()
				if err != nil {
					return err
				}
				renderIntervals(cmd.OutOrStdout(), table, limit)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum rows to print (0 for all)")
	return cmd
}

func (a *app) dffCmd() *cobra.Command {
	var (
		features []string
		noStim   bool
	)
	cmd := &cobra.Command{
		Use:   "dff <file.nwb>",
		Short: "Extract trial-aligned dF/F and join stimulus features",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(args[0], func(s *nwbtrials.Session) error {
				ex, err := s.LoadDFOverFData()
				if err != nil {
					return err
				}
				if !noStim {
					table, err := s.LoadStimulusData()
					if err != nil {
						return err
					}
					if _, err := s.AddStimulusTimeseries(ex, table, features...); err != nil {
						return err
					}
				}
				renderExtraction(cmd.OutOrStdout(), ex)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&features, "features", nil, "stimulus features to join (default from config)")
	cmd.Flags().BoolVar(&noStim, "no-stimulus", false, "skip the stimulus join")
	return cmd
}

func (a *app) masksCmd() *cobra.Command {
	var plane string
	cmd := &cobra.Command{
		Use:   "masks <file.nwb>",
		Short: "Summarise the ROI masks of one plane segmentation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if plane == "" {
				plane = a.cfg.Session.SegmentationKey
			}
			return a.withSession(args[0], func(s *nwbtrials.Session) error {
				masks, err := s.GetROIMasksByDMD(plane)
				if err != nil {
					return err
				}
				renderMasks(cmd.OutOrStdout(), masks)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&plane, "plane", "", "plane segmentation name (default from config)")
	return cmd
}

func (a *app) planesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "planes <file.nwb>",
		Short: "List plane segmentations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(args[0], func(s *nwbtrials.Session) error {
				planes, err := s.ROIMetaData()
				if err != nil {
					return err
				}
				renderPlanes(cmd.OutOrStdout(), planes)
				return nil
			})
		},
	}
}
