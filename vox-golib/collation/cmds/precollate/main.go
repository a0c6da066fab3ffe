package main

import (
	"fmt"
	"log"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/dustin/go-humanize"
	"github.com/gocarina/gocsv"

	"github.com/voxlab/voxlab/vox-golib/awsutil"
	"github.com/voxlab/voxlab/vox-golib/collation"
	"github.com/voxlab/voxlab/vox-golib/corpus"
	"github.com/voxlab/voxlab/vox-golib/fileutil"
	"github.com/voxlab/voxlab/vox-golib/serialization"
	"github.com/voxlab/voxlab/vox-golib/textproc"
	"github.com/voxlab/voxlab/vox-golib/workerpool"
)

func fail(err error) {
	if err != nil {
		panic(err)
	}
}

type batchStats struct {
	Batch        int     `csv:"batch"`
	Cuts         int     `csv:"cuts"`
	Steps        int     `csv:"steps"`
	AudioSamples int     `csv:"audio_samples"`
	PaddingFrac  float64 `csv:"padding_frac"`
}

func main() {
	start := time.Now()
	args := struct {
		Manifest  string `arg:"positional,required" help:"cuts manifest (jsonl, local or s3)"`
		Tokenizer string `arg:"required" help:"tokenizer json file"`
		OutDir    string `arg:"--out-dir" default:"."`
		StatsCSV  string `arg:"--stats" default:"stats.csv"`
		S3Cache   string `arg:"--s3-cache" help:"override the local cache dir for s3 reads"`

		BatchSize int  `default:"8"`
		Workers   int
		Resume    bool `help:"skip batches whose output file already exists"`

		MaxSeqLength     int     `default:"2048"`
		PadToMaxLength   bool
		TokensToGenerate int
		Reduction        int     `default:"1"`
		Codebooks        int     `default:"8"`
		SpeechVocabSize  int     `default:"1024"`
		SampleRate       int     `default:"22050"`
		FrameSamples     float64 `default:"1024"`
		LoadAnswerAudio  bool
		CacheSamples     int64   `default:"268435456" help:"audio cache budget in samples"`

		DefaultContext string `default:"answer the question according to the previous audio"`
	}{}
	arg.MustParse(&args)
	if args.Workers <= 0 {
		args.Workers = runtime.NumCPU()
	}
	if args.S3Cache != "" {
		awsutil.SetCacheRoot(args.S3Cache)
	}

	proc, err := textproc.NewBPEProcessor(args.Tokenizer, textproc.SpecialTokens{})
	fail(err)

	vocabs := []int{proc.VocabSize()}
	for i := 0; i < args.Codebooks; i++ {
		vocabs = append(vocabs, args.SpeechVocabSize)
	}
	pad := int32(args.SpeechVocabSize)
	cfg := collation.Config{
		MaxSeqLength:           args.MaxSeqLength,
		PadToMaxLength:         args.PadToMaxLength,
		TokensToGenerate:       args.TokensToGenerate,
		VocabSizes:             vocabs,
		DecoderReductionFactor: args.Reduction,
		SpeechPadID:            pad,
		SpeechUnkID:            pad + 1,
		SpeechBosID:            pad + 2,
		SpeechEosID:            pad + 3,
		SampleRate:             args.SampleRate,
		CodecFrameSamples:      args.FrameSamples,
		LoadAnswerAudio:        args.LoadAnswerAudio,
		DefaultContext:         args.DefaultContext,
		ContextKey:             "context",
		DefaultContextKey:      "default_context",
	}

	loader, err := corpus.NewCachingLoader(corpus.FaultTolerant{Loader: corpus.DiskLoader{}}, args.CacheSamples)
	fail(err)
	builder, err := collation.NewBatchBuilder(cfg, proc, loader)
	fail(err)

	cuts, err := corpus.LoadManifest(args.Manifest)
	fail(err)
	corpus.SortByDuration(cuts)
	log.Printf("loaded %s cuts from %s", humanize.Comma(int64(len(cuts))), args.Manifest)

	var mu sync.Mutex
	var stats []batchStats
	var totalSteps, totalAudio int64
	var skipped int

	var jobs []workerpool.Job
	for i := 0; i*args.BatchSize < len(cuts); i++ {
		i := i
		lo := i * args.BatchSize
		hi := lo + args.BatchSize
		if hi > len(cuts) {
			hi = len(cuts)
		}
		chunk := cuts[lo:hi]
		out := fileutil.Join(args.OutDir, fmt.Sprintf("batch-%06d.gob.gz", i))
		if args.Resume {
			exists, err := fileutil.Exists(out)
			fail(err)
			if exists {
				skipped++
				continue
			}
		}
		jobs = append(jobs, func() error {
			batch, err := builder.Build(chunk)
			if err != nil {
				return err
			}
			if err := serialization.Encode(out, batch); err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			stats = append(stats, statsFor(i, batch))
			for _, n := range batch.TokensLength {
				totalSteps += int64(n)
			}
			for _, n := range batch.AudioSignalLength {
				totalAudio += int64(n)
			}
			return nil
		})
	}
	if skipped > 0 {
		log.Printf("resume: skipping %s already-written batches", humanize.Comma(int64(skipped)))
	}

	pool := workerpool.New(args.Workers)
	pool.Add(jobs)
	fail(pool.Wait())
	pool.Stop()

	sort.Slice(stats, func(a, b int) bool { return stats[a].Batch < stats[b].Batch })
	statsOut, err := fileutil.NewBufferedWriter(fileutil.Join(args.OutDir, args.StatsCSV))
	fail(err)
	fail(gocsv.Marshal(&stats, statsOut))
	fail(statsOut.Close())

	log.Printf("wrote %s batches (%s decoder steps, %s audio samples) in %s",
		humanize.Comma(int64(len(stats))),
		humanize.Comma(totalSteps),
		humanize.Comma(totalAudio),
		time.Since(start))
}

func statsFor(idx int, batch *collation.Batch) batchStats {
	st := batchStats{Batch: idx, Cuts: len(batch.SampleIDs)}
	var used int
	for i, rows := range batch.Tokens {
		st.Steps = len(rows)
		used += batch.TokensLength[i]
	}
	for _, n := range batch.AudioSignalLength {
		st.AudioSamples += n
	}
	total := st.Steps * len(batch.Tokens)
	if total > 0 {
		st.PaddingFrac = 1 - float64(used)/float64(total)
	}
	return st
}
