package repo

import (
	"context"
	"database/sql"

	"wineinventory/internal/domain"
)

const catalogColumns = `id,name,COALESCE(winery,''),COALESCE(vintage,0),COALESCE(category,''),price`

func (r Repo) InsertCatalogItem(ctx context.Context, tx *sql.Tx, it domain.CatalogItem) error {
	var vintage any
	if it.Vintage != 0 {
		vintage = it.Vintage
	}
	_, err := r.q(tx).ExecContext(ctx, `INSERT INTO catalog_items(id,name,winery,vintage,category,price) VALUES (?,?,?,?,?,?)`,
		it.ID, it.Name, nullable(it.Winery), vintage, nullable(it.Category), it.Price)
	return err
}

func (r Repo) GetCatalogItem(ctx context.Context, id string) (domain.CatalogItem, error) {
	var it domain.CatalogItem
	err := r.DB.QueryRowContext(ctx, `SELECT `+catalogColumns+` FROM catalog_items WHERE id=?`, id).
		Scan(&it.ID, &it.Name, &it.Winery, &it.Vintage, &it.Category, &it.Price)
	if err == sql.ErrNoRows {
		return it, ErrNotFound
	}
	return it, err
}

func (r Repo) ListCatalog(ctx context.Context, tx *sql.Tx) ([]domain.CatalogItem, error) {
	rows, err := r.q(tx).QueryContext(ctx, `SELECT `+catalogColumns+` FROM catalog_items ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.CatalogItem
	for rows.Next() {
		var it domain.CatalogItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Winery, &it.Vintage, &it.Category, &it.Price); err != nil {
			return nil, err
		}
		res = append(res, it)
	}
	return res, rows.Err()
}

func (r Repo) CountCatalog(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM catalog_items`).Scan(&n)
	return n, err
}
