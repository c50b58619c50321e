// bondcalc prices fixed coupon bonds from a JSON market file: dirty/clean
// price, yield, duration/convexity and z-spread.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/calendar"
	"github.com/meenmo/bondlib/curve"
	"github.com/meenmo/bondlib/marketdata/refdata"
)

const dateLayout = "2006-01-02"

type bondInput struct {
	StartDate            string  `json:"startDate"`
	EndDate              string  `json:"endDate"`
	FixedRate            float64 `json:"fixedRate"`
	Notional             float64 `json:"notional"`
	RedemptionRatio      float64 `json:"redemptionRatio"`
	Frequency            int     `json:"frequency"`
	DayCount             string  `json:"dayCount"`
	Convention           string  `json:"convention"`
	Currency             string  `json:"currency"`
	Calendar             string  `json:"calendar"`
	ExCouponDays         int     `json:"exCouponDays"`
	SettlementOffsetDays int     `json:"settlementOffsetDays"`
}

type curveInput struct {
	Name  string             `json:"name"`
	Nodes map[string]float64 `json:"nodes"`
	Flat  *float64           `json:"flat"`
}

type marketInput struct {
	ValuationDate string     `json:"valuationDate"`
	Bond          bondInput  `json:"bond"`
	RepoCurve     curveInput `json:"repoCurve"`
	IssuerCurve   curveInput `json:"issuerCurve"`
}

type market struct {
	valuation time.Time
	bond      *bond.Bond
	repo      *curve.ZeroCurve
	issuer    *curve.ZeroCurve
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q: %w", s, err)
	}
	return t, nil
}

func loadMarket(path string) (*market, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var in marketInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	valuation, err := parseDate(in.ValuationDate)
	if err != nil {
		return nil, err
	}
	// The bond block is optional when --isin loads it from the security master.
	var b *bond.Bond
	if in.Bond.StartDate != "" {
		start, err := parseDate(in.Bond.StartDate)
		if err != nil {
			return nil, err
		}
		end, err := parseDate(in.Bond.EndDate)
		if err != nil {
			return nil, err
		}
		b, err = bond.BuildBond(bond.ScheduleTemplate{
			StartDate:            start,
			EndDate:              end,
			FixedRate:            in.Bond.FixedRate,
			Notional:             in.Bond.Notional,
			RedemptionRatio:      in.Bond.RedemptionRatio,
			Frequency:            in.Bond.Frequency,
			DayCount:             in.Bond.DayCount,
			Convention:           bond.YieldConvention(in.Bond.Convention),
			Currency:             in.Bond.Currency,
			Calendar:             calendar.CalendarID(in.Bond.Calendar),
			ExCouponDays:         in.Bond.ExCouponDays,
			SettlementOffsetDays: in.Bond.SettlementOffsetDays,
		})
		if err != nil {
			return nil, err
		}
	}
	repo, err := buildCurve(in.RepoCurve, "repo", valuation)
	if err != nil {
		return nil, err
	}
	issuer, err := buildCurve(in.IssuerCurve, "issuer", valuation)
	if err != nil {
		return nil, err
	}
	return &market{valuation: valuation, bond: b, repo: repo, issuer: issuer}, nil
}

func buildCurve(in curveInput, fallbackName string, valuation time.Time) (*curve.ZeroCurve, error) {
	name := in.Name
	if name == "" {
		name = fallbackName
	}
	if in.Flat != nil {
		return curve.Flat(name, valuation, *in.Flat), nil
	}
	if len(in.Nodes) == 0 {
		return nil, fmt.Errorf("curve %s: need nodes or flat rate", name)
	}
	nodes := make(map[time.Time]float64, len(in.Nodes))
	for ds, z := range in.Nodes {
		d, err := parseDate(ds)
		if err != nil {
			return nil, fmt.Errorf("curve %s: %w", name, err)
		}
		nodes[d] = z
	}
	return curve.NewZeroCurve(name, valuation, nodes), nil
}

func parseCompounding(s string) (bond.Compounding, error) {
	switch s {
	case "continuous":
		return bond.Continuous, nil
	case "periodic":
		return bond.Periodic, nil
	}
	return 0, fmt.Errorf("unknown compounding %q (want continuous or periodic)", s)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	var (
		inputPath      string
		settlementFlag string
		isin           string
		verbose        bool
	)

	root := &cobra.Command{
		Use:           "bondcalc",
		Short:         "Fixed coupon bond calculator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetFormatter(&log.JSONFormatter{})
			if verbose {
				log.SetLevel(log.DebugLevel)
			}
		},
	}
	root.PersistentFlags().StringVarP(&inputPath, "input", "i", "", "market JSON file")
	root.PersistentFlags().StringVarP(&settlementFlag, "settlement", "s", "", "settlement date (YYYY-MM-DD), defaults to offset from valuation")
	root.PersistentFlags().StringVar(&isin, "isin", "", "load the bond from the security master (BONDLIB_PG_DSN) instead of the input file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	root.MarkPersistentFlagRequired("input")

	load := func() (*market, time.Time, error) {
		m, err := loadMarket(inputPath)
		if err != nil {
			return nil, time.Time{}, err
		}
		if isin != "" {
			dsn := os.Getenv("BONDLIB_PG_DSN")
			if dsn == "" {
				return nil, time.Time{}, fmt.Errorf("--isin requires BONDLIB_PG_DSN to be set")
			}
			store, err := refdata.Open(dsn)
			if err != nil {
				return nil, time.Time{}, err
			}
			defer store.Close()
			m.bond, err = store.LoadBond(context.Background(), isin)
			if err != nil {
				return nil, time.Time{}, err
			}
			log.WithField("isin", isin).Debug("bond loaded from security master")
		}
		if m.bond == nil {
			return nil, time.Time{}, fmt.Errorf("no bond: provide a bond block in %s or --isin", inputPath)
		}
		var settlement time.Time
		if settlementFlag != "" {
			settlement, err = parseDate(settlementFlag)
			if err != nil {
				return nil, time.Time{}, err
			}
		} else {
			settlement = m.bond.SettlementDate(m.valuation, calendar.NoHolidays)
		}
		log.WithFields(log.Fields{
			"valuation":  m.valuation.Format(dateLayout),
			"settlement": settlement.Format(dateLayout),
			"maturity":   m.bond.UnadjustedEndDate().Format(dateLayout),
			"convention": m.bond.Convention,
		}).Debug("market loaded")
		return m, settlement, nil
	}

	priceCmd := &cobra.Command{
		Use:   "price",
		Short: "Dirty and clean price from the discount curves",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, settlement, err := load()
			if err != nil {
				return err
			}
			dirty := bond.DirtyPriceFromCurves(m.bond, m.repo, m.issuer, settlement)
			clean, err := bond.CleanPriceFromDirtyPrice(m.bond, settlement, dirty)
			if err != nil {
				return err
			}
			accrued, err := bond.AccruedInterest(m.bond, settlement)
			if err != nil {
				return err
			}
			return printJSON(map[string]any{
				"settlement": settlement.Format(dateLayout),
				"dirtyPrice": dirty,
				"cleanPrice": clean,
				"accrued":    accrued,
			})
		},
	}

	var (
		yieldPrice float64
		priceClean bool
	)
	yieldCmd := &cobra.Command{
		Use:   "yield",
		Short: "Yield implied by a price under the bond's convention",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, settlement, err := load()
			if err != nil {
				return err
			}
			dirty := yieldPrice
			if priceClean {
				dirty, err = bond.DirtyPriceFromCleanPrice(m.bond, settlement, yieldPrice)
				if err != nil {
					return err
				}
			}
			pricer := bond.NewPricer(nil)
			y, err := pricer.YieldFromDirtyPrice(m.bond, settlement, dirty)
			if err != nil {
				return err
			}
			return printJSON(map[string]any{
				"settlement": settlement.Format(dateLayout),
				"dirtyPrice": dirty,
				"yield":      y,
			})
		},
	}
	yieldCmd.Flags().Float64VarP(&yieldPrice, "price", "p", 0, "price (fraction of notional)")
	yieldCmd.Flags().BoolVar(&priceClean, "clean", false, "treat --price as a clean price")
	yieldCmd.MarkFlagRequired("price")

	var riskYield float64
	riskCmd := &cobra.Command{
		Use:   "risk",
		Short: "Duration and convexity at a yield",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, settlement, err := load()
			if err != nil {
				return err
			}
			md, err := bond.ModifiedDurationFromYield(m.bond, settlement, riskYield)
			if err != nil {
				return err
			}
			cv, err := bond.ConvexityFromYield(m.bond, settlement, riskYield)
			if err != nil {
				return err
			}
			out := map[string]any{
				"settlement":       settlement.Format(dateLayout),
				"yield":            riskYield,
				"modifiedDuration": md,
				"convexity":        cv,
			}
			mac, err := bond.MacaulayDurationFromYield(m.bond, settlement, riskYield)
			if err == nil {
				out["macaulayDuration"] = mac
			} else if !errors.Is(err, bond.ErrUnsupportedConvention) {
				return err
			}
			return printJSON(out)
		},
	}
	riskCmd.Flags().Float64VarP(&riskYield, "yield", "y", 0, "yield (decimal)")
	riskCmd.MarkFlagRequired("yield")

	var (
		zPrice       float64
		zCompounding string
		zFrequency   int
	)
	zspreadCmd := &cobra.Command{
		Use:   "zspread",
		Short: "Z-spread over the issuer curve matching a dirty price",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, settlement, err := load()
			if err != nil {
				return err
			}
			compounding, err := parseCompounding(zCompounding)
			if err != nil {
				return err
			}
			pricer := bond.NewPricer(nil)
			z, err := pricer.ZSpreadFromCurvesAndDirtyPrice(
				m.bond, m.repo, m.issuer, settlement, zPrice, compounding, zFrequency)
			if err != nil {
				return err
			}
			return printJSON(map[string]any{
				"settlement":  settlement.Format(dateLayout),
				"dirtyPrice":  zPrice,
				"compounding": zCompounding,
				"zSpread":     z,
			})
		},
	}
	zspreadCmd.Flags().Float64VarP(&zPrice, "price", "p", 0, "target dirty price (fraction of notional)")
	zspreadCmd.Flags().StringVar(&zCompounding, "compounding", "continuous", "continuous or periodic")
	zspreadCmd.Flags().IntVar(&zFrequency, "frequency", 2, "periods per year for periodic compounding")
	zspreadCmd.MarkFlagRequired("price")

	root.AddCommand(priceCmd, yieldCmd, riskCmd, zspreadCmd)

	if err := root.Execute(); err != nil {
		log.WithError(err).Fatal("bondcalc failed")
	}
}
