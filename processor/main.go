package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"

	"condo-app/audit"
	"condo-app/config"
	"condo-app/controllers/idgen"
	"condo-app/database"
	"condo-app/models"
	"condo-app/notify"
	"condo-app/repositories"
	"condo-app/types"
	"condo-app/unitimport"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// processor imports every spreadsheet waiting in the inbox folder for one
// condominium and moves each file to the processed folder afterwards.
func main() {
	condoFlag := flag.String("condo", "", "condominium ID the spreadsheets belong to")
	inbox := flag.String("inbox", "", "folder with unprocessed .xlsx files (default IMPORT_INBOX_DIR)")
	done := flag.String("done", "", "folder processed files are moved to (default IMPORT_DONE_DIR)")
	flag.Parse()

	config.LoadConfig()
	config.InitLogger("unit-processor")
	log := config.Logger

	if *inbox == "" {
		*inbox = config.ImportInboxDir
	}
	if *done == "" {
		*done = config.ImportDoneDir
	}

	condoID, err := types.ParseSnowflakeID(*condoFlag)
	if err != nil {
		log.Fatalf("Invalid -condo: %v", err)
	}

	if err := idgen.Init(config.SnowflakeNode); err != nil {
		log.Fatalf("Failed to init Snowflake: %v", err)
	}

	db, err := database.Open()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	var condo models.Condominium
	if err := db.First(&condo, "id = ?", condoID).Error; err != nil {
		log.Fatalf("Condominium %s not found: %v", condoID, err)
	}

	p := &processor{
		db:       db,
		condo:    condo,
		importer: unitimport.NewImporter(repositories.NewOwnershipUnitRepository(db), audit.NewDirect(audit.NewGormSink(db), log.WithField("component", "audit")), logrus.NewEntry(log)),
		notifier: notify.NewMailNotifierFromConfig(),
		log:      log.WithField("condominium_id", condoID),
		doneDir:  *done,
	}

	files, err := filepath.Glob(filepath.Join(*inbox, "*.xlsx"))
	if err != nil {
		log.Fatalf("Failed to read inbox: %v", err)
	}

	log.Infof("Processing %d files from %s", len(files), *inbox)
	for _, file := range files {
		p.processFile(file)
	}
	log.Info("All spreadsheets processed")
}

type processor struct {
	db       *gorm.DB
	condo    models.Condominium
	importer *unitimport.Importer
	notifier *notify.MailNotifier
	log      *logrus.Entry
	doneDir  string
}

func (p *processor) processFile(filename string) {
	base := filepath.Base(filename)
	log := p.log.WithField("file", base)

	var existing models.FileLog
	if err := p.db.Where("filename = ?", base).First(&existing).Error; err == nil {
		log.Warn("file already processed, skipping")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.WithError(err).Error("could not check file log")
		return
	}

	info, err := os.Stat(filename)
	if err != nil {
		log.WithError(err).Error("could not stat file")
		return
	}

	rows, err := readRows(filename)
	if err != nil {
		log.WithError(err).Error("could not read spreadsheet")
		return
	}

	result := p.importer.Import(context.Background(), p.condo.ID, 0, rows)
	log.WithField("outcome", result.Outcome).Info(result.Message)

	fileLog := models.FileLog{
		Filename:      base,
		CondominiumID: p.condo.ID,
		DateModified:  info.ModTime(),
		Outcome:       string(result.Outcome),
		Imported:      result.Imported,
	}
	if err := p.db.Create(&fileLog).Error; err != nil {
		log.WithError(err).Error("could not record file log")
	}

	if err := p.notifier.ImportFinished(p.condo.Name, base, result); err != nil {
		log.WithError(err).Warn("import notification not sent")
	}

	if err := moveFile(filename, filepath.Join(p.doneDir, base)); err != nil {
		log.WithError(err).Error("could not move file to processed folder")
	}
}

func readRows(filename string) ([]unitimport.RawRow, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return unitimport.ReadSheet(f)
}

// moveFile renames src into dst, copying when the rename crosses devices.
func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err != nil {
		return copyAndDeleteFile(src, dst)
	}
	return nil
}

func copyAndDeleteFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destinationFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destinationFile.Close()

	if _, err := io.Copy(destinationFile, sourceFile); err != nil {
		return err
	}
	return os.Remove(src)
}
